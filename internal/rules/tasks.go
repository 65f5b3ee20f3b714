package rules

// Task identifies a downstream action a caller may offer for an image.
type Task string

const (
	ConvertToPDF      Task = "convertToPDF"
	ConvertToWordDoc  Task = "convertToWordDoc"
	CopyAsMarkdown    Task = "copyAsMarkdown"
	ExportToCSV       Task = "exportToCSV"
	ExportToXLSX      Task = "exportToXLSX"
	Summarise         Task = "summarise"
	AISearchWithInput Task = "aiSearchWithInput"
	SearchOnGoogle    Task = "searchOnGoogle"
	CopyAsText        Task = "copyAsText"
)

// TableTasks are the document/export tasks that consume table payloads.
var TableTasks = []Task{ConvertToPDF, ConvertToWordDoc, CopyAsMarkdown, ExportToCSV, ExportToXLSX}

// TextTasks are the tasks that consume plain text payloads.
var TextTasks = []Task{Summarise, AISearchWithInput, SearchOnGoogle, CopyAsText}

// AnyOf reports whether any of want appears in tasks.
func AnyOf(tasks []Task, want []Task) bool {
	for _, t := range tasks {
		for _, w := range want {
			if t == w {
				return true
			}
		}
	}
	return false
}
