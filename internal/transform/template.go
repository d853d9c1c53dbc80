package transform

import "sort"

// Arg documents one argument a transformation accepts.
type Arg struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Template is the static schema of a transformation kind.
type Template struct {
	Name        Name           `json:"name"`
	Description string         `json:"description"`
	Args        map[string]Arg `json:"args"`
}

// NewTemplate starts a template for name.
func NewTemplate(name Name, description string) Template {
	return Template{Name: name, Description: description, Args: map[string]Arg{}}
}

// WithArg returns t with one more declared argument.
func (t Template) WithArg(name, description string) Template {
	args := make(map[string]Arg, len(t.Args)+1)
	for k, v := range t.Args {
		args[k] = v
	}
	args[name] = Arg{Name: name, Description: description}
	t.Args = args

	return t
}

// ArgNames returns the declared argument names sorted lexicographically.
func (t Template) ArgNames() []string {
	names := make([]string, 0, len(t.Args))
	for name := range t.Args {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
