package report

// ReportTemplate is the HTML template for the variance analysis report.
// It is embedded as a Go constant — no external file dependencies.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --critical: #b91c1c;
    --high: #ea580c;
    --medium: #ca8a04;
    --low: #16a34a;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 1100px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .summary {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(160px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
    margin: 16px 0;
  }
  .summary .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .summary .value { font-size: 1.2rem; font-weight: 600; }
  table { width: 100%; border-collapse: collapse; font-size: 0.85rem; }
  th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid var(--border); vertical-align: top; }
  th { background: var(--section-bg); font-size: 0.75rem; text-transform: uppercase; color: var(--muted); }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  .sev { font-weight: 700; font-size: 0.75rem; padding: 1px 8px; border-radius: 4px; color: white; }
  .sev-critical { background: var(--critical); }
  .sev-high { background: var(--high); }
  .sev-medium { background: var(--medium); }
  .sev-low { background: var(--low); }
  .rule { color: var(--muted); font-size: 0.8rem; }
</style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <p class="muted">Generated {{.GeneratedAt}}</p>

  <div class="summary">
    <div><div class="label">Accounts</div><div class="value">{{.Result.Stats.TotalAccounts}}</div></div>
    <div><div class="label">Significant</div><div class="value">{{.Result.Stats.SignificantVariances}}</div></div>
    <div><div class="label">Anomalies</div><div class="value">{{len .Result.Anomalies}}</div></div>
    <div><div class="label">Critical</div><div class="value">{{.Critical}}</div></div>
    <div><div class="label">High</div><div class="value">{{.High}}</div></div>
    <div><div class="label">Medium</div><div class="value">{{.Medium}}</div></div>
    <div><div class="label">Low</div><div class="value">{{.Low}}</div></div>
  </div>

  <h2>Anomalies</h2>
  <table>
    <tr>
      <th>Severity</th><th>ID</th><th>Account</th><th>Description</th>
      <th>Current</th><th>Previous</th><th>Variance</th><th>Rule</th><th>Recommended Action</th>
    </tr>
    {{range .Result.Anomalies}}
    <tr>
      <td><span class="sev sev-{{.Severity}}">{{upper (printf "%s" .Severity)}}</span></td>
      <td>{{.ID}}</td>
      <td>{{.AccountName}}<br><span class="muted">{{.AccountCode}} · {{.Category}}</span></td>
      <td>{{.Description}}<br><span class="rule">{{.LogicTrigger}}</span></td>
      <td class="num">{{amount .CurrentValue}}</td>
      <td class="num">{{optAmount .PreviousValue}}</td>
      <td class="num">{{optPercent .VariancePercent}}</td>
      <td>{{.RuleViolationID}}<br><span class="rule">{{.RuleViolationName}}</span></td>
      <td>{{.RecommendedAction}}</td>
    </tr>
    {{end}}
  </table>

  <h2>Correlation Findings</h2>
  <table>
    <tr>
      <th>Rule</th><th>Primary</th><th>Correlated</th>
      <th>Primary Var</th><th>Correlated Var</th><th>Severity</th><th>Detail</th>
    </tr>
    {{range .Result.CorrelationResults}}
    <tr>
      <td>{{.RuleID}} {{.RuleName}}</td>
      <td>{{.PrimaryAccount}}</td>
      <td>{{.CorrelatedAccount}}</td>
      <td class="num">{{percent .PrimaryVariance}}</td>
      <td class="num">{{percent .CorrelatedVariance}}</td>
      <td><span class="sev sev-{{.Severity}}">{{upper (printf "%s" .Severity)}}</span></td>
      <td>{{.ViolationDescription}}</td>
    </tr>
    {{end}}
  </table>
</body>
</html>`
