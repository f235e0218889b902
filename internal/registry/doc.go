// Package registry maps node types to their externally supplied processor
// functions. The engine is agnostic to what each processor does; it only
// looks the function up by node type and invokes it with resolved inputs.
package registry
