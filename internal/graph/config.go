package graph

import "github.com/zclconf/go-cty/cty"

// ConfigAttr returns the named attribute of an opaque node configuration
// object, or cty.NilVal when the config is not an object or lacks the
// attribute. Processors use this to read their settings without caring how
// the config was produced.
func ConfigAttr(cfg cty.Value, name string) cty.Value {
	if cfg.Type() == cty.NilType || cfg.IsNull() || !cfg.Type().IsObjectType() {
		return cty.NilVal
	}
	if !cfg.Type().HasAttribute(name) {
		return cty.NilVal
	}
	return cfg.GetAttr(name)
}

// ConfigString reads a string attribute from a node configuration.
func ConfigString(cfg cty.Value, name string) (string, bool) {
	v := ConfigAttr(cfg, name)
	if v.Type() != cty.String || v.IsNull() {
		return "", false
	}
	return v.AsString(), true
}

// ConfigInt reads a whole-number attribute from a node configuration.
func ConfigInt(cfg cty.Value, name string) (int, bool) {
	v := ConfigAttr(cfg, name)
	if v.Type() != cty.Number || v.IsNull() {
		return 0, false
	}
	f, _ := v.AsBigFloat().Int64()
	return int(f), true
}
