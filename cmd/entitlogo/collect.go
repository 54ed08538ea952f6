package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2/google"

	"github.com/entitlogo/entitlogo/pkg/asset_collection"
	"github.com/entitlogo/entitlogo/pkg/auth_handling"
	"github.com/entitlogo/entitlogo/pkg/logging"
	"github.com/entitlogo/entitlogo/pkg/policy_merging"
	"github.com/entitlogo/entitlogo/pkg/report_export"
)

const defaultLocalOutput = "entitlements.csv"

func newRootCommand() *cobra.Command {
	var credentialsFile string
	var dbDSN string

	rootCmd := &cobra.Command{
		Use:   "entitlogo",
		Short: "Inventory per-identity IAM entitlements across a GCP organization",
		Long: "entitlogo flattens an organization's IAM policy bindings into a per-identity\n" +
			"entitlement report (CSV), resolving service accounts against the asset\n" +
			"inventory directory and expanding group membership for user identities.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd.Context(), credentialsFile, dbDSN)
		},
	}
	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials-file", "", "path to a service account JSON key file (default: application default credentials)")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db-dsn", "", "optional MySQL DSN to store the report rows")

	var policiesFile string
	var serviceAccountsFile string
	var outputFile string
	var bucket string

	localCmd := &cobra.Command{
		Use:   "local",
		Short: "Build the report from previously exported JSON files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if set := auth_handling.RemoteEnvSet(); len(set) > 0 {
				return fmt.Errorf("local mode cannot be combined with remote environment parameters: %s", strings.Join(set, ", "))
			}
			return runLocal(cmd.Context(), policiesFile, serviceAccountsFile, outputFile, bucket, credentialsFile, dbDSN)
		},
	}
	localCmd.Flags().StringVar(&policiesFile, "policies", "", "path to a JSON file of IAM policy search results")
	localCmd.Flags().StringVar(&serviceAccountsFile, "service-accounts", "", "path to a JSON file of service account search results")
	localCmd.Flags().StringVar(&outputFile, "output", defaultLocalOutput, "report output filename")
	localCmd.Flags().StringVar(&bucket, "bucket", "", "optional GCS bucket to upload the report to")
	localCmd.MarkFlagRequired("policies")
	localCmd.MarkFlagRequired("service-accounts")

	rootCmd.AddCommand(localCmd)
	return rootCmd
}

// runRemote pulls both data sets from the asset inventory, merges them and
// exports the report. Any acquisition failure aborts the run with no
// partial output.
func runRemote(ctx context.Context, credentialsFile, dbDSN string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := auth_handling.LoadRemoteConfig()
	if err != nil {
		return err
	}

	creds, err := auth_handling.GCPAuth(ctx, credentialsFile)
	if err != nil {
		return err
	}

	client, err := asset_collection.NewInventoryClient(ctx, creds)
	if err != nil {
		return err
	}

	logging.Infof("searching IAM policies under organization %s", cfg.OrgID)
	policies, err := client.SearchIamPolicies(ctx, cfg.OrgID)
	if err != nil {
		return err
	}
	logging.Infof("found %d resources with IAM policies", len(policies))

	logging.Infof("searching service accounts under organization %s", cfg.OrgID)
	serviceAccounts, err := client.SearchServiceAccounts(ctx, cfg.OrgID)
	if err != nil {
		return err
	}
	logging.Infof("found %d service accounts", len(serviceAccounts))

	expander := asset_collection.NewPolicyAnalyzer(client, cfg.OrgID)
	report, err := policy_merging.Merge(ctx, policies, serviceAccounts, cfg.OrgID, expander)
	if err != nil {
		return err
	}
	logging.Infof("merged entitlements for %d identities", report.Len())

	return exportReport(ctx, creds, report, cfg.OutputFile, cfg.Bucket, dbDSN)
}

// runLocal builds the report from exported JSON files. No organization id
// is available, so user identities are reported without group expansion.
func runLocal(ctx context.Context, policiesFile, serviceAccountsFile, outputFile, bucket, credentialsFile, dbDSN string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	policies, err := asset_collection.LoadPolicies(policiesFile)
	if err != nil {
		return err
	}
	serviceAccounts, err := asset_collection.LoadServiceAccounts(serviceAccountsFile)
	if err != nil {
		return err
	}
	logging.Infof("loaded %d policy records and %d service accounts", len(policies), len(serviceAccounts))

	report, err := policy_merging.Merge(ctx, policies, serviceAccounts, "", nil)
	if err != nil {
		return err
	}
	logging.Infof("merged entitlements for %d identities", report.Len())

	var creds *google.Credentials
	if bucket != "" {
		creds, err = auth_handling.GCPAuth(ctx, credentialsFile)
		if err != nil {
			return err
		}
	}
	return exportReport(ctx, creds, report, outputFile, bucket, dbDSN)
}

// exportReport persists the computed rows. A failed CSV write (or upload)
// is reported but does not fail the run: the computation succeeded, the
// result is simply not persisted.
func exportReport(ctx context.Context, creds *google.Credentials, report *policy_merging.Report, outputFile, bucket, dbDSN string) error {
	rows := report.Rows()

	if err := report_export.WriteCSV(outputFile, policy_merging.ReportHeader, rows); err != nil {
		logging.Errorf("report not persisted: %v", err)
	} else {
		logging.Infof("wrote %d rows to %s", len(rows), outputFile)
		if bucket != "" {
			if err := report_export.UploadToGCS(ctx, creds, bucket, outputFile); err != nil {
				logging.Errorf("upload failed: %v", err)
			} else {
				logging.Infof("uploaded %s to gs://%s", outputFile, bucket)
			}
		}
	}

	if dbDSN != "" {
		db, err := auth_handling.DBConnect(dbDSN)
		if err != nil {
			logging.Errorf("report rows not stored: %v", err)
			return nil
		}
		defer db.Close()
		if err := report_export.StoreReport(db, rows); err != nil {
			logging.Errorf("report rows not stored: %v", err)
		} else {
			logging.Infof("stored %d rows in the entitlement table", len(rows))
		}
	}

	return nil
}
