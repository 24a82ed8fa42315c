// Package registry provides the central "glue" for the module system.
//
// The Registry keeps the ordered list of modules that take part in plugin
// discovery. A module is anything with a name and a root directory; what it
// contributes is decided by which of the optional extension interfaces it
// implements:
//
//   - TypeDeclarer declares plugin types owned by the module.
//   - DirectoryLocator tells the locator where the module keeps plugins of a
//     given (owner, type).
//   - PreAlterer and PostAlterer adjust discovered definitions before and
//     after normalization.
//
// Registration order is significant. The locator queries modules, and the
// alteration pipeline runs callbacks, in the order modules were registered.
package registry
