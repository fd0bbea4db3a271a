package ports

// FolderOpener shows a directory to the user outside the terminal
type FolderOpener interface {
	Open(path string) error
}
