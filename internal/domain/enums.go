package domain

import "strings"

// PDFContentType is the only MIME type accepted for publication.
const PDFContentType = "application/pdf"

// ConversionState is the publishing backend's view of a draft's conversion.
type ConversionState string

const (
	ConversionPending ConversionState = "PENDING"
	ConversionDone    ConversionState = "DONE"
	ConversionFailed  ConversionState = "FAILED"
)

// ParseConversionState maps an upstream conversion status onto a ConversionState.
// Anything that is not a recognised terminal status counts as still converting.
func ParseConversionState(status string) ConversionState {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "DONE":
		return ConversionDone
	case "FAILED", "ERROR":
		return ConversionFailed
	default:
		return ConversionPending
	}
}

// Terminal reports whether no further polling can change the state.
func (s ConversionState) Terminal() bool {
	return s == ConversionDone || s == ConversionFailed
}

// Backend names one side of a publication record.
type Backend string

const (
	BackendStorage     Backend = "storage"
	BackendPublication Backend = "publication"
)

// Saga operation names, used for logging and metrics labels.
const (
	OperationPublish            = "publish"
	OperationValidate           = "validate"
	OperationRetract            = "retract"
	OperationRetractStorageOnly = "retract_storage"
)
