package pdf

import "github.com/a3tai/payreq-extractor/internal/pdftest"

var (
	buildPDF      = pdftest.Build
	buildEmptyPDF = pdftest.Empty
	requestLines  = pdftest.RequestLines
)
