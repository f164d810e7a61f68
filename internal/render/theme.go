package render

// Theme holds the colors used to render a block CFG as DOT.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	EdgeDirect     string // unconditional fall-through / jump / call edges
	EdgeTaken      string // first successor edge of a two-successor block (T)
	EdgeNotTaken   string // second successor edge of a two-successor block (F)
	EdgeSelfLoop   string // synthesized self-loop tail edge

	EntryBorder string // function root block
	TermFill    string // terminal block (ends in RET, no successors)
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeDirect:   "#424242", // dark gray
	EdgeTaken:    "#0B3D91", // NASA blue
	EdgeNotTaken: "#FC3D21", // NASA red
	EdgeSelfLoop: "#00695C", // teal

	EntryBorder: "#0B3D91",
	TermFill:    "#ECEFF1", // blue-gray 50
}
