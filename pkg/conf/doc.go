// Package conf implements the line-based configuration format used by plugin
// descriptors, resource group definitions and resource overrides.
//
// # Format
//
// The format is plain UTF-8 text. A `[group]` header introduces a group; a
// `/` inside the header name creates nested groups. `key=value` lines belong
// to the current group. Values may be quoted to preserve whitespace, and a
// `"""` on its own line opens a multi-line value terminated by another `"""`.
// Lines starting with `#` or `;` are comments. The same key may appear
// multiple times within a group; the values form an ordered list. A UTF-8
// BOM at the start of the file is tolerated.
//
// # Usage Example
//
// Parse a descriptor:
//
//	c, err := conf.Load("plugins/matrix.conf")
//	if err != nil {
//		log.Fatal(err)
//	}
//	iface := c.Root().Value("interface")
//	deps := c.Root().Values("depends")
//
// # Related Packages
//
//   - pkg/plugins: plugin metadata built on top of this format
//   - pkg/resource: resource group definitions and development overrides
package conf
