// Package notice renders the employment notice and fee invoice documents
// issued during the engagement lifecycle and stores them on local disk.
package notice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/example/pharmacy-staffing/internal/application"
)

const noticeTemplateText = `労働条件通知書

発行日: {{formatDate .IssuedAt}}

{{.Pharmacist.LastName}} {{.Pharmacist.FirstName}} 殿

事業者: {{.Pharmacy.Name}}
所在地: {{.Pharmacy.Address}}
連絡先: {{.Pharmacy.Phone}}

契約期間: {{formatDate .Engagement.ContractStart}} 〜 {{formatDate .Engagement.ContractEnd}}
勤務時間: {{.Posting.ShiftStart}} 〜 {{.Posting.ShiftEnd}}（休憩 {{.Posting.BreakMinutes}} 分）
日給: {{formatYen .Engagement.DailyRate}}
勤務日数: {{.Engagement.WorkDayCount}} 日
報酬総額: {{formatYen .Engagement.TotalCompensation}}
{{if .Engagement.TermsText}}
特記事項:
{{.Engagement.TermsText}}
{{end}}`

const invoiceTemplateText = `請求書

発行日: {{formatDate .IssuedAt}}

{{.Pharmacy.Name}} 御中

下記のとおりご請求申し上げます。

件名: 人材紹介手数料
契約期間: {{formatDate .Engagement.ContractStart}} 〜 {{formatDate .Engagement.ContractEnd}}
報酬総額: {{formatYen .Engagement.TotalCompensation}}
請求金額: {{formatYen .Fee.Amount}}
お支払期限: {{formatDate .Fee.PaymentDeadline}}
`

// Generator implements document rendering backed by text templates. Rendered
// files are written under a configured directory and referenced by file name.
type Generator struct {
	dir         string
	notice      *template.Template
	invoice     *template.Template
	idGenerator func() string
	now         func() time.Time
}

// NewGenerator creates a Generator writing documents under dir. The directory
// is created on first use.
func NewGenerator(dir string) *Generator {
	funcs := template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format("2006年01月02日") },
		"formatYen":  func(amount int) string { return fmt.Sprintf("%s円", groupDigits(amount)) },
	}
	return &Generator{
		dir:         dir,
		notice:      template.Must(template.New("notice").Funcs(funcs).Parse(noticeTemplateText)),
		invoice:     template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceTemplateText)),
		idGenerator: uuid.NewString,
		now:         time.Now,
	}
}

type noticeContext struct {
	application.NoticeData
	IssuedAt time.Time
}

type invoiceContext struct {
	application.InvoiceData
	IssuedAt time.Time
}

// GenerateNotice renders the employment notice and writes it to disk.
func (g *Generator) GenerateNotice(ctx context.Context, data application.NoticeData) (application.NoticeDocument, error) {
	var buf bytes.Buffer
	if err := g.notice.Execute(&buf, noticeContext{NoticeData: data, IssuedAt: g.now()}); err != nil {
		return application.NoticeDocument{}, fmt.Errorf("failed to render notice: %w", err)
	}

	ref := fmt.Sprintf("notice-%s.txt", g.idGenerator())
	if err := g.write(ref, buf.Bytes()); err != nil {
		return application.NoticeDocument{}, err
	}
	return application.NoticeDocument{TextBody: buf.String(), FileRef: ref}, nil
}

// GenerateInvoice renders the fee invoice, writes it to disk, and returns the
// file reference.
func (g *Generator) GenerateInvoice(ctx context.Context, data application.InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := g.invoice.Execute(&buf, invoiceContext{InvoiceData: data, IssuedAt: g.now()}); err != nil {
		return "", fmt.Errorf("failed to render invoice: %w", err)
	}

	ref := fmt.Sprintf("invoice-%s.txt", g.idGenerator())
	if err := g.write(ref, buf.Bytes()); err != nil {
		return "", err
	}
	return ref, nil
}

func (g *Generator) write(name string, content []byte) error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("failed to prepare documents directory: %w", err)
	}
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// groupDigits renders an integer with comma separators every three digits.
func groupDigits(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	if len(digits) <= 3 {
		return sign + digits
	}
	var buf bytes.Buffer
	lead := len(digits) % 3
	if lead > 0 {
		buf.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if buf.Len() > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(digits[i : i+3])
	}
	return sign + buf.String()
}
