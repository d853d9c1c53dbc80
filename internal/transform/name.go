package transform

// Name identifies a supported transformation kind by its short code in the
// path grammar.
type Name string

const (
	Scale     Name = "c_scale"
	Watermark Name = "c_watermark"
	Colorize  Name = "c_colorize"
	Grayscale Name = "c_grayscale"
)

// String returns the short code.
func (n Name) String() string { return string(n) }
