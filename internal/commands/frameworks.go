package commands

import "context"

// Frameworks lists the supported protocols and their frameworks. The first
// framework of each protocol is its default.
func (c *Controller) Frameworks(_ context.Context) error {
	out := c.deps.Output
	for _, p := range c.registry.Protocols() {
		out.Printf("%s\n", okColor.Sprint(p))
		for i, g := range c.registry.Frameworks(p) {
			mark := " "
			if i == 0 {
				mark = "*"
			}
			out.Printf("  %s %-10s %s\n", mark, g.Framework(), dimColor.Sprint(g.Description()))
		}
	}
	out.Println()
	out.Println("* default framework of the protocol")
	return nil
}
