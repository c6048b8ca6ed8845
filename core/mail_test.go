package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	conf := NewTestConfig()
	conf.AppName = "Student Management"
	conf.SiteURL = "http://school.test"

	msg := &EmailMessage{
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{"Username": "ann", "Course": "Not Assigned"},
	}
	require.NoError(t, msg.Render(conf))

	assert.Contains(t, msg.TextContent, "Hello ann,")
	assert.Contains(t, msg.TextContent, "http://school.test/student/dashboard/")
	assert.Contains(t, msg.TextContent, "Student Management") // from the base layout
	assert.Contains(t, msg.HTMLContent, "Not Assigned")
	assert.True(t, msg.HasContent())
}

func TestEmailMessage_Render_bodyStr(t *testing.T) {
	msg := &EmailMessage{BodyStr: "plain"}
	require.NoError(t, msg.Render(NewTestConfig()))
	assert.Equal(t, "plain", msg.TextContent)
	assert.Empty(t, msg.HTMLContent)
}
