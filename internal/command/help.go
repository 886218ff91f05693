package command

// HelpEntry describes one directive for the presentation layer.
type HelpEntry struct {
	Directive string `json:"directive"`
	Argument  string `json:"argument,omitempty"`
	Label     string `json:"label"`
}

var helpEntries = []HelpEntry{
	{Directive: "t", Argument: "tag[,tag...]", Label: "toggle tags or tagset abbreviations"},
	{Directive: ".", Label: "repeat the last toggle"},
	{Directive: "n", Label: "next file"},
	{Directive: "p", Label: "previous file"},
	{Directive: ":", Argument: "position|name", Label: "jump to a file"},
	{Directive: "0-5", Label: "set rating"},
	{Directive: "r", Label: "reject"},
	{Directive: "d", Label: "mark or unmark for deletion"},
	{Directive: "c", Label: "rotate clockwise"},
	{Directive: "C", Label: "rotate counterclockwise"},
	{Directive: "h", Label: "flip horizontally"},
	{Directive: "v", Label: "flip vertically"},
	{Directive: "N", Label: "next metadata source"},
	{Directive: "P", Label: "previous metadata source"},
	{Directive: "H", Label: "show this help"},
}

// HelpEntries lists all directives in display order.
func HelpEntries() []HelpEntry {
	out := make([]HelpEntry, len(helpEntries))
	copy(out, helpEntries)
	return out
}
