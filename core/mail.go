package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	// EmailTemplates holds the parsed `.txt` / `.gohtml` email templates, keyed by name (without ext).
	EmailTemplates struct {
		cache tmplCache
	}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// ParseEmailTemplates parses every non-underscored template in fsys together with its `_base` layout.
// In strict mode, missing template keys fail the rendering.
func ParseEmailTemplates(fsys fs.FS, strict bool) (*EmailTemplates, error) {
	fps, err := fs.Glob(fsys, "*")
	if err != nil {
		return nil, errors.Wrap(err, "listing email templates")
	}

	cache := make(tmplCache)
	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := cache[name]
		if !ok {
			entry = make(tmplCacheEntry)
			cache[name] = entry
		}

		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(fsys, "_base.txt", fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fp)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(fsys, "_base.gohtml", fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fp)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		}
	}
	return &EmailTemplates{cache: cache}, nil
}

func (t *EmailTemplates) get(name, ext string) (interface{}, bool) {
	if t == nil {
		return nil, false
	}
	entry, ok := t.cache[name]
	if !ok {
		return nil, false
	}
	tmpl, ok := entry[ext]
	return tmpl, ok
}

func (m *EmailMessage) contextData(appName string) ContextData {
	return ContextData{AppName: appName, Data: m.TemplateData}
}

func (m *EmailMessage) renderText(tmpls *EmailTemplates, appName string) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := tmpls.get(m.TemplateName, ".txt")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.contextData(appName)); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(tmpls *EmailTemplates, appName string) error {
	if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := tmpls.get(m.TemplateName, ".gohtml")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.contextData(appName)); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render fills TextContent and HTMLContent from BodyStr or the named template.
func (m *EmailMessage) Render(tmpls *EmailTemplates, appName string) error {
	if err := m.renderText(tmpls, appName); err != nil {
		return err
	}
	return m.renderHTML(tmpls, appName)
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }
