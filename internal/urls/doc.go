// Package urls holds the project URLs printed in help text and
// troubleshooting hints.
//
// Usage:
//
//	import "github.com/wulfaz/karotzctl/internal/urls"
//
//	fmt.Printf("Install OpenKarotz first: %s\n", urls.OpenKarotzProject)
package urls
