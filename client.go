package main

import (
	"context"
)

// Entity is a folder or file as represented by the remote store.
type Entity struct {
	ID       string
	Name     string
	ParentID string
	IsFolder bool
}

// Scope restricts a name search. The zero value searches the direct children of
// the account root.
type Scope struct {
	Anywhere bool
	ParentID string
}

// Within scopes a search to the direct children of parentID ("" is the account root).
func Within(parentID string) Scope {
	return Scope{ParentID: parentID}
}

// Anywhere searches the whole account regardless of parent.
var Anywhere = Scope{Anywhere: true}

// ProgressFunc receives upload completion in percent. It is observational only.
type ProgressFunc func(percent int)

type StorageClient interface {
	CreateFolder(ctx context.Context, name, parentID string) (Entity, error)
	SearchByName(ctx context.Context, name string, scope Scope) ([]Entity, error)
	UploadFile(ctx context.Context, localPath, fileName, parentID string, progress ProgressFunc) (Entity, error)
}
