// Package identity canonicalizes a participant's proof of identity into the
// string their contribution signature is bound to.
//
// Two credential variants are accepted:
//
//	0x73F8A075b9a1e3ddD169CfdBdFA513c40B8bd796  ->  eth|0x73F8A075b9a1e3ddD169CfdBdFA513c40B8bd796
//	@Kariy                                      ->  git|26515232|@kariy
//
// Handles are mapped to their numeric account id by a [Resolver];
// [GitHubResolver] queries the GitHub REST API.
package identity
