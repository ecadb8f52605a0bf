package emailsvc

import (
	"bytes"
	"log"
	"net/mail"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classfence/core"
	"github.com/trezcool/classfence/tests"
)

var templatesFS = fstest.MapFS{
	"_base.txt":    {Data: []byte(`{{template "content" .}} -- {{.AppName}}`)},
	"_base.gohtml": {Data: []byte(`<p>{{template "content" .}}</p>`)},
	"hello.txt":    {Data: []byte(`{{define "content"}}Hello {{.Data.Name}}{{end}}`)},
	"hello.gohtml": {Data: []byte(`{{define "content"}}Hello <b>{{.Data.Name}}</b>{{end}}`)},
	"notes.md":     {Data: []byte(`ignored`)},
	"textonly.txt": {Data: []byte(`{{define "content"}}plain{{end}}`)},
}

func parseTemplates(t *testing.T) *core.EmailTemplates {
	tmpls, err := core.ParseEmailTemplates(templatesFS, true)
	require.NoError(t, err)
	return tmpls
}

func TestConsoleService_send(t *testing.T) {
	var out bytes.Buffer
	svc := NewConsoleService(log.New(&out, "", 0), parseTemplates(t), testutil.NewConfig()).(*consoleService)

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: "Dean", Address: "dean@school.test"}},
		Subject:      "Hi",
		TemplateName: "hello",
		TemplateData: map[string]string{"Name": "Ada"},
	}
	ok, err := svc.sendMessage(msg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hello Ada -- Classfence", msg.TextContent)
	assert.Equal(t, "<p>Hello <b>Ada</b></p>", msg.HTMLContent)

	body := out.String()
	assert.Contains(t, body, "Subject: [Classfence] Hi\r\n")
	assert.Contains(t, body, `To: "Dean" <dean@school.test>`)
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "text/plain; charset=utf-8")
	assert.Contains(t, body, "text/html; charset=utf-8")
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	to := []mail.Address{{Address: "dean@school.test"}}
	tests := []struct {
		name     string
		msg      core.EmailMessage
		wantSent bool
		wantText string
		wantHTML string
	}{
		{name: "plain body", msg: core.EmailMessage{To: to, BodyStr: "raw"}, wantSent: true, wantText: "raw"},
		{name: "text template only", msg: core.EmailMessage{To: to, TemplateName: "textonly"}, wantSent: true, wantText: "plain -- Classfence"},
		{name: "no recipients", msg: core.EmailMessage{BodyStr: "raw"}},
		{name: "unknown template", msg: core.EmailMessage{To: to, TemplateName: "nope"}},
		{name: "ignored extension", msg: core.EmailMessage{To: to, TemplateName: "notes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewConsoleServiceMock(parseTemplates(t), testutil.NewConfig())
			msg := tt.msg
			svc.SendMessages(&msg)

			sent := svc.SentMessages()
			if !tt.wantSent {
				assert.Empty(t, sent)
				return
			}
			require.Len(t, sent, 1)
			assert.Equal(t, tt.wantText, sent[0].TextContent)
			assert.Equal(t, tt.wantHTML, sent[0].HTMLContent)
		})
	}
}

func TestConsoleServiceMock_strictTemplates(t *testing.T) {
	svc := NewConsoleServiceMock(parseTemplates(t), testutil.NewConfig())
	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: "dean@school.test"}},
		TemplateName: "hello",
		TemplateData: map[string]string{}, // missing "Name"
	}
	assert.Panics(t, func() { svc.SendMessages(msg) })
}
