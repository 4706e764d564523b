package port

// PDFInfo is what intake learns about an uploaded document.
type PDFInfo struct {
	PageCount int
}

// PDFInspector checks that a payload is a readable PDF.
type PDFInspector interface {
	Inspect(data []byte) (*PDFInfo, error)
}
