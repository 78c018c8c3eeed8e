// Package deploy triggers a site rebuild through a deploy hook URL.
package deploy
