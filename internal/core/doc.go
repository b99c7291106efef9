// Package core normalizes vehicle collection spreadsheets into a fixed
// nine-column layout.
//
// Source workbooks come from many leasing partners and branch offices, each
// with its own column names and layout. The package locates a header row in
// every sheet, maps header cells to canonical fields through substring
// aliases, and extracts one output row per data row:
//
//	nopol, mobil, lesing, ovd, saldo, cabang, nama, noka, nosin
//
// # Pipeline
//
//  1. A [Decoder] turns the uploaded file into a [Workbook] of typed cells.
//  2. A [HeaderResolver] scans the first [HeaderSearchRows] rows of each sheet
//     and maps fields to columns using the [Registry].
//  3. The [Extractor] cleans each data row below the header and drops rows
//     missing a required field.
//  4. [Service.NormalizeFile] concatenates the rows of all sheets and returns
//     [ErrNoValidData] when nothing was accepted.
//
// Sheets without a header and rows without a plate number are skipped
// silently. Only a file that cannot be decoded at all fails the upload.
//
// # Header strategies
//
// [FirstMatchResolver] stops at the first row that maps any field. Headers
// split across two rows are not supported. [BestRowResolver] scores every
// row in the window and keeps the one mapping the most fields.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - FILE001-FILE005: size, format and decode failures
//   - ING001-ING002: no valid data, registry misconfiguration
//   - UPL002-UPL005: busy, cancelled, timed out
//   - DB004-DB008: history store problems
package core
