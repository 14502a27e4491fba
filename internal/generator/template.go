package generator

import (
	"context"
	"fmt"

	"github.com/harrison/binmeta/internal/display"
	"github.com/harrison/binmeta/internal/retry"
	"github.com/harrison/binmeta/internal/vault"
)

// DefaultTemplate is the note body used when no template file is configured
// or the configured one cannot be read.
const DefaultTemplate = `![[{{PATH}}]]
LINK: [[{{PATH}}]]
CREATED At: {{CDATE:YYYY-MM-DD}}
FILE TYPE: {{EXTENSION:UP}}
`

// templateText returns the raw template body. The configured file is
// polled for since it may still be syncing into the vault.
func (p *Pipeline) templateText(ctx context.Context) string {
	if p.settings.TemplatePath == "" {
		return DefaultTemplate
	}
	templatePath := vault.NormalizePath(p.settings.TemplatePath)

	file, err := retry.Poll(ctx, p.clock, p.settings.Retry, func() (vault.File, bool) {
		return p.vault.FileByPath(templatePath)
	})
	if err != nil {
		p.invalidTemplate(templatePath, err)
		return DefaultTemplate
	}

	text, err := p.vault.Read(file.Path)
	if err != nil {
		p.invalidTemplate(templatePath, err)
		return DefaultTemplate
	}
	return text
}

func (p *Pipeline) invalidTemplate(templatePath string, cause error) {
	p.logger.LogWarn(fmt.Sprintf("template file %s is invalid: %v", templatePath, cause))
	p.notifier.Notify(display.Notice{
		Level:      display.LevelWarn,
		Title:      fmt.Sprintf("Template file %s is invalid", templatePath),
		Suggestion: "Using the built-in template",
	})
}
