// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sandbox compiles a sandwork configuration into a bubblewrap
// (bwrap) invocation that runs an interactive shell in a restricted view
// of the caller's home directory.
//
// The central type is [Compiler], which turns a [config.Config] into a
// [Plan]: an ordered set of [Directive] values grouped by category. The
// categories are always emitted in the same order (baseline, display
// socket, overlay, rwbind, robind, shadow). bwrap applies mounts in
// argument order and a later mount on the same destination replaces an
// earlier one, so shadow directives come last and always win.
//
// Paths in the configuration are resolved against the home directory
// ([Resolve]). Overlay entries get persistent upper and work directories
// under the staging tree described by [Layout]; writes made inside the
// sandbox land there and survive across runs. Shadow entries are masked
// with either /dev/null or the shared empty directory, depending on what
// [Classifier] reports for the target at compile time.
//
// Side effects sit behind small capabilities so plan construction can be
// exercised without touching the filesystem: [DirMaker] creates staging
// directories, [Classifier] inspects shadow targets, and [Invoker] hands
// the finished argument vector to bwrap. [BwrapBuilder] serializes a plan
// 1:1 into bwrap arguments, and [Launcher] performs the final handoff,
// which by default replaces the current process image.
//
// [Validator] performs pre-flight checks (bwrap availability, user
// namespace support, configuration validity, presence of configured
// paths) without launching anything. [DetectCapabilities] probes the
// same host features for tests that need a working bwrap.
package sandbox
