package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/habla/internal/ui/theme"
)

// Choice is a list of options answered by picking one option or, in multi
// mode, toggling any number of them.
type Choice struct {
	Options []string
	Multi   bool
	Cursor  int
	checked map[int]bool
}

// NewChoice creates a choice list.
func NewChoice(options []string, multi bool) Choice {
	return Choice{Options: options, Multi: multi, checked: make(map[int]bool)}
}

// Update handles navigation and toggling. Number keys jump to an option;
// in multi mode they also toggle it.
func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
	case "space", " ", "x":
		if c.Multi {
			c.toggle(c.Cursor)
		}
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(c.Options) {
				c.Cursor = i
				if c.Multi {
					c.toggle(i)
				}
			}
		}
	}
	return c, nil
}

func (c *Choice) toggle(i int) {
	if c.checked == nil {
		c.checked = make(map[int]bool)
	}
	if c.checked[i] {
		delete(c.checked, i)
	} else {
		c.checked[i] = true
	}
}

// Checked returns the toggled indices in ascending order.
func (c Choice) Checked() []int {
	out := make([]int, 0, len(c.checked))
	for i := range c.Options {
		if c.checked[i] {
			out = append(out, i)
		}
	}
	return out
}

// View renders the options.
func (c Choice) View() string {
	var s string
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Cursor {
			prefix = "▸ "
		}
		mark := ""
		if c.Multi {
			mark = "[ ] "
			if c.checked[i] {
				mark = "[x] "
			}
		}
		line := fmt.Sprintf("%s%d) %s%s", prefix, i+1, mark, opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case i == c.Cursor:
			style = theme.Selected
		case c.checked[i]:
			style = theme.Checked
		}
		s += style.Render(line) + "\n"
	}
	return s
}
