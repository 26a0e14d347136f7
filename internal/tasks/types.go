package tasks

// Task is a single free-form text entry. It has no identity beyond its
// position in the list.
type Task = string

// SeedTasks is the content of a freshly started task list, in order.
var SeedTasks = []Task{
	"Write a diary entry from the future",
	"Create a time machine from a cardboard box",
	"Plan a trip to the dinosaurs",
	"Draw a futuristic city",
	"List items to bring on a time-travel adventure",
}

// ValidationError reports input rejected before any mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid task: " + e.Reason
}

// ErrMissingText is returned by Append when the text is empty.
var ErrMissingText = &ValidationError{Reason: "missing text"}

func validateText(text string) error {
	if text == "" {
		return ErrMissingText
	}
	return nil
}

func seedCopy() []Task {
	out := make([]Task, len(SeedTasks))
	copy(out, SeedTasks)
	return out
}
