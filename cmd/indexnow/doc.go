// Command indexnow notifies IndexNow search engines about changed URLs.
//
// Subcommands:
//
//	serve          run the HTTP API, key-file endpoints and optional Pub/Sub feed
//	submit URL...  submit URLs once
//	sitemap URL    submit every page listed in a sitemap
//	generate-key   print a new API key (-set prints an env assignment too)
//	publish-key    upload the key file to GCS or a local document root
package main
