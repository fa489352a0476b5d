// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract turns raw source text into element streams.
//
// Extractors are looked up by file suffix through an explicit Registry; the
// absence of an extractor for a suffix means "no intelligence available for
// this file type" and is never an error. The pipeline resolves the
// capability once per task and persists whatever the extractor produces.
package extract
