// Package errmsg provides enhanced error message formatting with actionable suggestions.
package errmsg

import (
	"errors"
	"net"
	"strings"

	"github.com/nightwatch-dev/nwupd/internal/addon"
	"github.com/nightwatch-dev/nwupd/internal/archive"
	"github.com/nightwatch-dev/nwupd/internal/download"
	"github.com/nightwatch-dev/nwupd/internal/manifest"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	AddonName string // The addon being operated on (for suggestions)
}

// Format returns a formatted error message with possible causes and suggestions.
// The context parameter is optional - pass nil for generic formatting.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}

	var manifestErr *manifest.Error
	if errors.As(err, &manifestErr) {
		return formatManifestError(manifestErr)
	}

	var downloadErr *download.Error
	if errors.As(err, &downloadErr) {
		return formatDownloadError(downloadErr, ctx)
	}

	var invalidErr *archive.InvalidArchiveError
	var traversalErr *archive.TraversalError
	if errors.As(err, &invalidErr) || errors.As(err, &traversalErr) {
		return formatBadArchiveError(err, ctx)
	}

	var emptyErr *addon.EmptyArchiveError
	if errors.As(err, &emptyErr) {
		return formatEmptyArchiveError(emptyErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(netErr)
	}

	return err.Error()
}

func formatManifestError(err *manifest.Error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	switch err.Type {
	case manifest.ErrTypeNetwork, manifest.ErrTypeConnection, manifest.ErrTypeDNS, manifest.ErrTypeTimeout:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - Manifest server temporarily unavailable\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Check your internet connection\n")
		sb.WriteString("  - Try again in a few minutes\n")

	case manifest.ErrTypeTLS:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Expired or self-signed certificate on the manifest server\n")
		sb.WriteString("  - System clock far out of sync\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Verify the manifest URL is correct\n")
		sb.WriteString("  - Check your system date and time\n")

	case manifest.ErrTypeHTTP:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Manifest URL points at a missing or moved document\n")
		sb.WriteString("  - Server-side outage\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Run 'nwupd config get manifest_url' and verify the URL\n")
		sb.WriteString("  - Try again in a few minutes\n")

	case manifest.ErrTypeParsing, manifest.ErrTypeValidation:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The manifest document is malformed\n")
		sb.WriteString("  - A proxy or captive portal returned an HTML page\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Report the issue to the manifest maintainers\n")
		sb.WriteString("  - Check the manifest URL in a browser\n")

	case manifest.ErrTypeSchema:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The manifest uses a newer schema than this build understands\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Update nwupd to the latest release\n")

	case manifest.ErrTypeSignature:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The manifest was modified in transit\n")
		sb.WriteString("  - The signing key rotated\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Do not install addons until verification succeeds\n")
		sb.WriteString("  - Update the pinned fingerprint if the key rotation is announced\n")
	}

	return sb.String()
}

func formatDownloadError(err *download.Error, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	switch err.Kind {
	case download.KindNetwork:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - Download host temporarily unavailable\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Check your internet connection\n")
		sb.WriteString("  - Try again in a few minutes\n")

	case download.KindHTTP:
		sb.WriteString("\nPossible causes:\n")
		if err.Status >= 500 {
			sb.WriteString("  - Download host is having server trouble\n")
		} else {
			sb.WriteString("  - The addon's download link is stale\n")
		}

		sb.WriteString("\nSuggestions:\n")
		if err.Status >= 500 {
			sb.WriteString("  - Try again in a few minutes\n")
		} else {
			sb.WriteString("  - Report the broken link to the manifest maintainers\n")
		}

	case download.KindCorrupt:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Connection dropped mid-download\n")
		sb.WriteString("  - A proxy truncated the response\n")

		sb.WriteString("\nSuggestions:\n")
		writeRetrySuggestion(&sb, ctx)

	case download.KindIO:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Disk full or temporary directory not writable\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Check free disk space\n")
	}

	return sb.String()
}

func formatBadArchiveError(err error, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - The download is not a valid archive\n")
	sb.WriteString("  - The archive is malformed or hostile\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Report the bad archive to the manifest maintainers\n")
	writeRetrySuggestion(&sb, ctx)

	return sb.String()
}

func formatEmptyArchiveError(err *addon.EmptyArchiveError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - The published archive contains only packaging metadata\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Report the empty archive to the manifest maintainers\n")

	return sb.String()
}

func formatNetworkError(err net.Error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	if err.Timeout() {
		sb.WriteString("  - Request timed out\n")
		sb.WriteString("  - Slow or unstable network connection\n")
	} else {
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - DNS resolution failure\n")
	}
	sb.WriteString("  - Firewall or proxy blocking the connection\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")
	if err.Timeout() {
		sb.WriteString("  - Raise NWUPD_HTTP_TIMEOUT if you are on a slow link\n")
	}

	return sb.String()
}

func writeRetrySuggestion(sb *strings.Builder, ctx *ErrorContext) {
	if ctx != nil && ctx.AddonName != "" {
		sb.WriteString("  - Run 'nwupd install " + ctx.AddonName + "' to retry\n")
	} else {
		sb.WriteString("  - Retry the install\n")
	}
}
