// Package firestore keeps entries and bus timetables in Cloud Firestore,
// using the same layout as the web app: a top-level "entries" collection
// and a "users/{uid}/busTimes" sub-collection per user.
package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
)

const (
	entriesCollection  = "entries"
	usersCollection    = "users"
	busTimesCollection = "busTimes"
)

// NewClient opens Firestore through a Firebase app. An empty credentialsFile
// falls back to application default credentials, or to the emulator when
// FIRESTORE_EMULATOR_HOST is set.
func NewClient(ctx context.Context, projectID, credentialsFile string) (*fs.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open firestore: %w", err)
	}
	return client, nil
}
