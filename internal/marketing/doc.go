// Package marketing defines the three marketing-copy generation flows:
// ad-copy variations, social-media posts with hashtags, and SEO keyword and
// metadata suggestions. Each flow pairs an input and output record with a
// versioned prompt template and runs through a generation.Invoker supplied
// by the caller.
package marketing
