// Package remoteregistry provides a remote template registry that loads YAML manifests
// via a Fetcher (HTTP or Git). It caches templates with a configurable TTL and
// deduplicates concurrent fetches of the same name. Use New with an implementation
// of Fetcher (e.g. NewHTTPFetcher).
package remoteregistry
