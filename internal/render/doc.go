// Package render turns HTML documents into PDF bytes by driving a headless
// browser. It owns launch configuration, browser session acquisition with
// bounded retry, and the per-page render sequence with guaranteed release of
// the page and the browser on every exit path.
//
// The package is engine agnostic: the Chromium implementation of Launcher,
// Session and Page lives in internal/infra/chrome.
package render
