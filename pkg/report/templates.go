package report

// markdownReport renders the summary of a coverage report as markdown.
// It has no trailing newline.
const markdownReport = "## Coverage Report\n\n" +
	"- **Covered File:** {{.Path}}\n" +
	"- **Coverage percentage:** {{.Percentage}}% covered\n" +
	"- **Line coverage:** {{.Covered}} / {{.Executable}} lines covered"

// htmlReport renders a coverage report with every source line colored by its state.
// Source lines are written verbatim.
const htmlReport = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Coverage Report</title>
  <style>
    body {
        font-family: Arial, sans-serif;
        font-size: 12px;
        line-height: 1.6;
        padding: 20px;
    }
    table {
        width: 100%;
        border-collapse: collapse;
        margin-bottom: 20px;
    }
    th, td {
        padding: 8px;
        margin-left: 20px;
        text-align: left;
        white-space: pre-wrap;
        border-bottom: 1px solid #e3e3e3;
    }
    .line-number-col {
        width: 4%;
    }
    .line-number-row {
        border-right: 1px solid #ababab
    }
    .source-code-col {
        width: 96%;
    }
    .covered-line, .not-covered-line, .uncovered-line {
        /*white-space: pre-wrap;*/
    }
    .covered-line {
        background-color: #c8e6c9; /* Light green */
    }
    .not-covered-line {
        background-color: #ffcdd2; /* Light red */
    }
    .uncovered-line {
        background-color: #f7f7f7; /* light gray */
    }
    .coverage-summary {
      margin-bottom: 20px;
    }
    h2 {
      text-align: center;
    }
    ul {
      list-style-type: none;
      padding: 0;
      text-align: center;
    }
    .summary-box {
      border: 1px solid #ccc;
      border-radius: 8px;
      padding: 10px;
      margin-bottom: 20px;
      display: flex;
      justify-content: space-between;
      align-items: flex-start;
    }
    .summary-left {
      text-align: left;
    }
    .summary-right {
      text-align: right;
    }
    .legend {
      display: flex;
      align-items: center;
    }
    .legend-item {
      width: 20px;
      height: 10px;
      margin-right: 5px;
      border-radius: 2px;
      display: inline-block;
    }
    .legend .covered {
      background-color: #c8e6c9; /* Light green */
    }
    .legend .not-covered {
      margin-left: 4px;
      background-color: #ffcdd2; /* Light red */
    }
    @media screen and (max-width: 768px) {
      body {
          padding: 10px;
      }
      table {
          width: auto;
      }
    }
  </style>
</head>
<body>
  <h2>Coverage Report</h2>
  <div class="summary-box">
    <div class="summary-left">
      <strong>Covered File:</strong> {{.Path}} <br>
      <div class="legend">
        <div class="legend-item covered"></div>
        <span>Covered</span>
        <div class="legend-item not-covered"></div>
        <span>Uncovered</span>
      </div>
    </div>
    <div class="summary-right">
      <div><strong>Coverage percentage:</strong> {{.Percentage}}%</div>
      <div><strong>Line coverage:</strong> {{.Covered}} / {{.Executable}} covered</div>
    </div>
  </div>
  <table>
    <thead>
      <tr>
        <th class="line-number-col">Line No</th>
        <th class="source-code-col">Source Code</th>
      </tr>
    </thead>
    <tbody>{{range .Lines}}<tr>
    <td class="line-number-row">{{.Number}}</td>
    <td class="{{.Class}}">{{.Text}}</td>
</tr>{{end}}    </tbody>
  </table>
</body>
</html>`
