// Package export serializes flat records to csv, excel, json and a
// printable HTML report, and delivers the result through a delivery.Sink or
// a Printer.
package export
