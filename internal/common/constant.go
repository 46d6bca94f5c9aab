package common

// RemoteFileName is the name of the bookmark file kept under the WebDAV base URL.
const RemoteFileName = "bookmarks.html"

// VaultLabel is the fixed application label the credential vault derives
// its keys from.
const VaultLabel = "davmarks-credential-vault"
