package entity

// LabelInfo is presentation data attached to a class name.
type LabelInfo struct {
	DisplayName string
	Severity    string
}
