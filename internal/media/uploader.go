// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media implements the object-storage collaborator for user media
(avatars, cover images).

Architecture:

  - Uploader: The narrow contract consumed by the domain services.
  - S3Uploader: aws-sdk-go-v2 implementation against any S3-compatible
    endpoint (Cloudflare R2, MinIO, AWS).

The uploader owns the local temporary file it is handed: the file is removed
on BOTH the success and the failure path, so a failed registration never
leaks spooled uploads.
*/
package media

import "context"

// Uploader uploads a locally spooled file to durable media storage and
// returns its public URL.
type Uploader interface {

	/*
		Upload stores the file at localPath and returns its public URL.

		The local file is deleted before Upload returns, regardless of outcome.
		An empty localPath is a no-op returning an empty URL — callers use this
		for optional media that was never provided.

		Parameters:
		  - context: context.Context
		  - localPath: string (spooled temporary file)

		Returns:
		  - string: Public URL of the stored object
		  - error: Storage failures
	*/
	Upload(context context.Context, localPath string) (string, error)
}
