/*
Package pluginid provides a structured, type-safe representation for plugin
and plugin type identifiers.

A plugin type is identified by the pair (owner, type); two modules may declare
the same type name and remain distinct. A single plugin is identified by the
triple (owner, type, name), written canonically as `owner:type:name`, e.g.
`coffeemaker:brewer_types:espresso`.

This package centralizes all formatting and parsing logic so that no other
package builds identifiers by string concatenation.
*/
package pluginid
