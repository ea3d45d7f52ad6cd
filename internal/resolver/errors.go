// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import "errors"

// The sentinel errors a caller of Resolve may need to distinguish, per §7.
var (
	// ErrMalformedModelOutput is never returned directly — repair.Parse
	// absorbs malformed output by design — but is kept as a documented
	// possibility for a future Model implementation that wants to report a
	// transport-level decode failure distinctly from "no calls found".
	ErrMalformedModelOutput = errors.New("resolver: malformed model output")

	// ErrNoValidCalls is returned when every local attempt and the cloud
	// fallback (if configured) produced zero valid calls.
	ErrNoValidCalls = errors.New("resolver: no valid calls resolved")

	// ErrCloudUnavailable is returned when local resolution failed and no
	// cloudclient.Generator was configured to fall back to.
	ErrCloudUnavailable = errors.New("resolver: local resolution failed and no cloud fallback is configured")

	// ErrCatalogInconsistent is returned when the tool catalog passed to
	// Resolve is empty — there is nothing for any strategy to resolve
	// against.
	ErrCatalogInconsistent = errors.New("resolver: empty tool catalog")
)
