// Package manager assembles the inter-service communication layer from
// configuration and owns the lifecycle of its background tasks.
package manager
