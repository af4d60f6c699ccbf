/*
Package mailingsync publishes the Reconquista mailing list from the CRM database to a Google Sheets worksheet.

mailing-sync can be used from the command line but is really intended to be run from a scheduler to keep the
MAILING_RECONQUISTA worksheet in step with the result of a fixed SQL query. Each run replaces the worksheet
contents with the current query result, with the date columns formatted as DD/MM/YYYY.

mailing-sync supports the following commands:

  - sync, to run the query and replace the worksheet contents with the result
  - get, to download the worksheet as a TSV file
  - version, to display the current version

The run is configured from the environment (URL_MAILING and CONN_STRING, optionally loaded from a .env file)
and from the config/g_creds.json service account credentials and queries/select_mailing.sql query files in
the base directory.
*/
package mailingsync
