// Package domain contains the entities shared by the registry modules.
package domain
