package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nao1215/markdown"
)

// ClassificationFormats are the formats classify accepts.
var ClassificationFormats = []Format{FormatText, FormatTable, FormatMarkdown, FormatJSON, FormatYAML}

// WriteClassification renders c to w in format f.
func WriteClassification(w io.Writer, c *Classification, f Format) error {
	switch f {
	case FormatText:
		return writeClassificationText(w, c)
	case FormatTable:
		return writeClassificationTable(w, c)
	case FormatMarkdown:
		return writeClassificationMarkdown(w, c)
	case FormatJSON:
		return writeJSON(w, c)
	case FormatYAML:
		return writeYAML(w, c)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

func writeClassificationText(w io.Writer, c *Classification) error {
	if !c.Named {
		if _, err := fmt.Fprintln(w, "Couldn't find index to category map...dumping raw probabilities"); err != nil {
			return err
		}
		for _, s := range c.Categories {
			if _, err := fmt.Fprintf(w, "%d : %f\n", s.Index, s.Probability); err != nil {
				return err
			}
		}
		return nil
	}

	if _, err := fmt.Fprintln(w, "====Probabilities of each category===="); err != nil {
		return err
	}
	for _, s := range c.Categories {
		if _, err := fmt.Fprintf(w, "%s : %f %%\n", s.Name, s.Percent()); err != nil {
			return err
		}
	}
	return nil
}

func categoryLabel(s CategoryScore) string {
	if s.Name == "" {
		return fmt.Sprintf("#%d", s.Index)
	}
	return s.Name
}

func writeClassificationTable(w io.Writer, c *Classification) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if c.Page.Title != "" {
		t.SetTitle(c.Page.Title)
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	t.AppendHeader(table.Row{"Rank", "Category", "Probability", "Raw"})
	for i, s := range c.Categories {
		t.AppendRow(table.Row{i + 1, categoryLabel(s), fmt.Sprintf("%.2f %%", s.Percent()), fmt.Sprintf("%.4f", s.Raw)})
	}
	if c.Language != nil {
		t.AppendFooter(table.Row{"", "Language", c.Language.Name, fmt.Sprintf("%.2f", c.Language.Confidence)})
	}
	t.Render()
	return nil
}

func writeClassificationMarkdown(w io.Writer, c *Classification) error {
	md := markdown.NewMarkdown(w)

	title := c.Page.Title
	if title == "" {
		title = c.Page.URL
	}
	md.H1("Classification: " + title)
	md.PlainText("")

	props := [][]string{{"URL", "`" + c.Page.URL + "`"}}
	if c.Page.SiteName != "" {
		props = append(props, []string{"Site", c.Page.SiteName})
	}
	if c.Language != nil {
		props = append(props, []string{"Language", fmt.Sprintf("%s (%.2f)", c.Language.Name, c.Language.Confidence)})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: props})
	md.PlainText("")

	if c.Page.Excerpt != "" {
		md.PlainText("> " + c.Page.Excerpt)
		md.PlainText("")
	}

	md.H2("Categories")
	md.PlainText("")
	rows := make([][]string, 0, len(c.Categories))
	for i, s := range c.Categories {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), categoryLabel(s), fmt.Sprintf("%.2f %%", s.Percent())})
	}
	md.Table(markdown.TableSet{Header: []string{"Rank", "Category", "Probability"}, Rows: rows})
	if !c.Named {
		md.PlainText("")
		md.PlainText("Category names unavailable; showing indices.")
	}

	return md.Build()
}
