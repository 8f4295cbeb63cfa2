// Package render turns Markdown outlines into validated PNG mind maps.
//
// A [Pipeline] runs five stages in order and stops at the first failure:
//
//  1. stage-in: remove stale working files, allocate an [artifact.Artifact]
//     and write the Markdown source
//  2. transform: a [Transformer] writes the intermediate document
//  3. post-process: a [PostProcessor] adjusts the intermediate document;
//     failures are logged and ignored
//  4. rasterize: a [Rasterizer] produces the PNG
//  5. validate: the PNG must exist, be at least [MinRasterBytes] long and
//     start with the PNG signature
//
// Each stage failure carries a code from pkg/errors: EXTERNAL_TOOL for the
// transformer, RENDER for the rasterizer and ARTIFACT_INVALID for
// validation.
//
// # Engines
//
// The markmap engine ([NewMarkmap]) shells out to the markmap CLI to produce
// an interactive HTML document and screenshots it in headless Chromium via
// go-rod. The graphviz engine ([NewGraphviz]) builds the tree in-process with
// goldmark and lays it out with the embedded Graphviz; it needs neither
// Node.js nor a browser.
//
// # Branding
//
// markmap injects a toolbar and attribution links. [Branding] lists the
// selectors and patterns removed from its output. This is a compatibility
// shim against the markmap version in use: markmap publishes no contract for
// its markup, so an upgrade can silently break it.
package render
