package notifier

import (
	"fmt"
	"html/template"
	"strings"

	"teewatch/internal/model"
)

var slotsTmpl = template.Must(template.New("slots").Parse(`<html>
<body>
<p>New tee times just opened up:</p>
{{range .}}
<h3>{{.Date}}</h3>
<table border="1" cellpadding="4" cellspacing="0">
  <tr><th>Time</th><th>Open Spots</th><th>Holes</th></tr>
  {{range .Slots}}
  <tr><td>{{.Time}}</td><td>{{.Players}}</td><td>{{.Holes}}</td></tr>
  {{end}}
</table>
{{end}}
<p>Book fast, they go quickly.</p>
</body>
</html>`))

type dateGroup struct {
	Date  string
	Slots []model.TimeSlot
}

// groupByDate buckets slots by their date text, preserving the order dates
// and slots appear on the sheet.
func groupByDate(slots []model.TimeSlot) []dateGroup {
	var groups []dateGroup
	index := make(map[string]int)

	for _, slot := range slots {
		i, ok := index[slot.Date]
		if !ok {
			i = len(groups)
			index[slot.Date] = i
			groups = append(groups, dateGroup{Date: slot.Date})
		}
		groups[i].Slots = append(groups[i].Slots, slot)
	}
	return groups
}

func renderSlotsHTML(slots []model.TimeSlot) string {
	var b strings.Builder
	if err := slotsTmpl.Execute(&b, groupByDate(slots)); err != nil {
		return renderSlotsText(slots)
	}
	return b.String()
}

func renderSlotsText(slots []model.TimeSlot) string {
	var b strings.Builder
	b.WriteString("New tee times just opened up:\n\n")
	for _, g := range groupByDate(slots) {
		fmt.Fprintf(&b, "%s\n", g.Date)
		for _, s := range g.Slots {
			fmt.Fprintf(&b, "  %s: %s spots, %s holes\n", s.Time, s.Players, s.Holes)
		}
		b.WriteString("\n")
	}
	return b.String()
}
