package assets

import (
	"embed"
	"io/fs"
)

//go:embed templates/email templates/email/_*
var content embed.FS

// EmailTemplates returns the email templates directory.
func EmailTemplates() fs.FS {
	sub, err := fs.Sub(content, "templates/email")
	if err != nil {
		panic(err) // the path is embedded above
	}
	return sub
}
