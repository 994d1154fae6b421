package report

import (
	"html/template"
	"os"
	"path/filepath"
	"time"

	"covrun/internal/domain"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Coverage Report</title>
    <style>
        :root {
            --good: #16A34A;
            --bad: #DC2626;
            --warn: #CA8A04;
            --bg: #0f172a;
            --card: #1e293b;
            --text: #f8fafc;
            --muted: #94a3b8;
            --border: #334155;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.6;
            padding: 2rem;
        }
        .container { max-width: 1100px; margin: 0 auto; }
        h1 { font-size: 2rem; margin-bottom: 0.5rem; font-weight: 600; }
        .timestamp { color: var(--muted); font-size: 0.875rem; margin-bottom: 2rem; }
        .summary { display: flex; gap: 1rem; margin-bottom: 2rem; }
        .summary-card {
            background: var(--card);
            border-radius: 0.5rem;
            padding: 1rem 1.5rem;
            border: 1px solid var(--border);
        }
        .summary-label {
            font-size: 0.75rem;
            text-transform: uppercase;
            color: var(--muted);
            letter-spacing: 0.05em;
        }
        .summary-value { font-size: 1.5rem; font-weight: 600; }
        .summary-value.good { color: var(--good); }
        .summary-value.warn { color: var(--warn); }
        .summary-value.bad { color: var(--bad); }
        table {
            width: 100%;
            border-collapse: collapse;
            background: var(--card);
            border-radius: 0.5rem;
            overflow: hidden;
        }
        th, td {
            padding: 0.75rem 1rem;
            text-align: left;
            border-bottom: 1px solid var(--border);
        }
        th {
            background: rgba(0,0,0,0.2);
            font-weight: 600;
            font-size: 0.75rem;
            text-transform: uppercase;
            letter-spacing: 0.05em;
            color: var(--muted);
        }
        td.num { text-align: right; font-variant-numeric: tabular-nums; }
        tr:last-child td { border-bottom: none; }
        tr:hover { background: rgba(255,255,255,0.02); }
        .missing { color: var(--muted); font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 0.8rem; }
        .progress-bar {
            width: 100%;
            height: 6px;
            background: var(--border);
            border-radius: 3px;
            overflow: hidden;
        }
        .progress-fill { height: 100%; border-radius: 3px; }
        .progress-fill.good { background: var(--good); }
        .progress-fill.warn { background: var(--warn); }
        .progress-fill.bad { background: var(--bad); }
        .coverage-cell { display: flex; align-items: center; gap: 0.75rem; }
        .coverage-percent { min-width: 4rem; font-weight: 500; }
        tfoot td { font-weight: 600; background: rgba(0,0,0,0.2); }
    </style>
</head>
<body>
    <div class="container">
        <h1>Coverage Report</h1>
        <p class="timestamp">Generated {{.Timestamp}}</p>

        <div class="summary">
            <div class="summary-card">
                <div class="summary-label">Total Coverage</div>
                <div class="summary-value {{.Grade}}">{{printf "%.1f" .Percent}}%</div>
            </div>
            <div class="summary-card">
                <div class="summary-label">Files</div>
                <div class="summary-value">{{len .Files}}</div>
            </div>
            <div class="summary-card">
                <div class="summary-label">Statements</div>
                <div class="summary-value">{{.Statements}}</div>
            </div>
            <div class="summary-card">
                <div class="summary-label">Missed</div>
                <div class="summary-value">{{.Missed}}</div>
            </div>
        </div>

        <table>
            <thead>
                <tr>
                    <th>File</th>
                    <th>Stmts</th>
                    <th>Miss</th>
                    <th>Coverage</th>
                    <th>Missing</th>
                </tr>
            </thead>
            <tbody>
                {{range .Files}}
                <tr>
                    <td>{{.Name}}</td>
                    <td class="num">{{.Statements}}</td>
                    <td class="num">{{.Missed}}</td>
                    <td>
                        <div class="coverage-cell">
                            <span class="coverage-percent">{{printf "%.1f" .Percent}}%</span>
                            <div class="progress-bar">
                                <div class="progress-fill {{.Grade}}" style="width: {{printf "%.1f" .Percent}}%"></div>
                            </div>
                        </div>
                    </td>
                    <td class="missing">{{.Missing}}</td>
                </tr>
                {{end}}
            </tbody>
            <tfoot>
                <tr>
                    <td>TOTAL</td>
                    <td class="num">{{.Statements}}</td>
                    <td class="num">{{.Missed}}</td>
                    <td>{{printf "%.1f" .Percent}}%</td>
                    <td></td>
                </tr>
            </tfoot>
        </table>
    </div>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

type htmlFile struct {
	Name       string
	Statements int
	Missed     int
	Percent    float64
	Grade      string
	Missing    string
}

type htmlData struct {
	Timestamp  string
	Statements int
	Missed     int
	Percent    float64
	Grade      string
	Files      []htmlFile
}

// HTMLWriter renders the self-contained HTML report.
type HTMLWriter struct{}

// WriteReport writes index.html under dir and returns its path.
func (HTMLWriter) WriteReport(dir string, summary domain.Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	data := htmlData{
		Timestamp:  time.Now().Format("2006-01-02 15:04:05 MST"),
		Statements: summary.Statements(),
		Missed:     summary.Missed(),
		Percent:    summary.Percent(),
		Grade:      grade(summary.Percent()),
		Files:      make([]htmlFile, 0, len(summary.Files)),
	}
	for _, f := range summary.Files {
		data.Files = append(data.Files, htmlFile{
			Name:       f.File,
			Statements: f.Statements(),
			Missed:     f.Missed(),
			Percent:    f.Percent(),
			Grade:      grade(f.Percent()),
			Missing:    domain.FormatRanges(f.MissingRanges()),
		})
	}

	index := filepath.Join(dir, "index.html")
	out, err := os.Create(index)
	if err != nil {
		return "", err
	}
	if err := reportTemplate.Execute(out, data); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return index, nil
}

func grade(percent float64) string {
	switch {
	case percent >= 90:
		return "good"
	case percent >= 50:
		return "warn"
	default:
		return "bad"
	}
}
