package literature

// FileType is a document format the backend accepts as a filter.
type FileType string

// Supported file types.
const (
	FileTypePDF      FileType = "pdf"
	FileTypeDoc      FileType = "doc"
	FileTypeDocx     FileType = "docx"
	FileTypeMD       FileType = "md"
	FileTypeMarkdown FileType = "markdown"
)

// IsValid reports whether t is one of the supported types. Empty means no filter
// and is not valid here.
func (t FileType) IsValid() bool {
	switch t {
	case FileTypePDF, FileTypeDoc, FileTypeDocx, FileTypeMD, FileTypeMarkdown:
		return true
	}
	return false
}

// FileTypeOptions is the fixed list offered by the file type filter.
func FileTypeOptions() []FilterOption {
	return []FilterOption{
		{Label: "PDF", Value: string(FileTypePDF)},
		{Label: "Word", Value: string(FileTypeDoc)},
		{Label: "Word", Value: string(FileTypeDocx)},
		{Label: "Markdown", Value: string(FileTypeMD)},
		{Label: "Markdown", Value: string(FileTypeMarkdown)},
	}
}
