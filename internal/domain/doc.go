// Package domain contains the core business entities and value objects of
// the configuration system: the program/clinic/location hierarchy, config
// definitions, stored values, and their audit history. It is independent
// of any specific infrastructure or delivery mechanism.
package domain
