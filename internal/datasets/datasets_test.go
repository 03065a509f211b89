package datasets_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/creyno/genomemeta/internal/datasets"
)

type fakeRunner struct {
	mu   sync.Mutex
	args [][]string
	fn   func(ctx context.Context) ([]byte, error)
}

func (f *fakeRunner) Run(ctx context.Context, _ []byte, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.args = append(f.args, append([]string{name}, args...))
	f.mu.Unlock()
	return f.fn(ctx)
}

const sampleReport = `{
  "reports": [
    {
      "accession": "GCF_023516215.1",
      "paired_accession": "GCA_023516215.1",
      "source_database": "SOURCE_DATABASE_REFSEQ",
      "annotation_info": {
        "method": "Best-placed reference protein set; GeneMarkS-2+",
        "provider": "NCBI RefSeq",
        "release_date": "2022-05-26",
        "pipeline": "NCBI Prokaryotic Genome Annotation Pipeline (PGAP)",
        "stats": {
          "gene_counts": {
            "non_coding": 88,
            "protein_coding": 4220,
            "pseudogene": 113,
            "total": 4421
          }
        }
      },
      "assembly_info": {
        "assembly_level": "Complete Genome",
        "assembly_method": "Flye v. 2.8",
        "assembly_name": "ASM2351621v1",
        "assembly_status": "current",
        "assembly_type": "haploid",
        "bioproject_accession": "PRJNA834100",
        "refseq_category": "representative genome",
        "release_date": "2022-05-25",
        "sequencing_tech": "Oxford Nanopore MinION; Illumina MiSeq",
        "submitter": "Example Institute",
        "biosample": {
          "accession": "SAMN28012345",
          "attributes": [
            {"name": "isolation_source", "value": "wheat rhizosphere"},
            {"name": "host", "value": "Triticum aestivum"},
            {"name": "geo_loc_name", "value": "Chile: Valparaiso"},
            {"name": "collection_date", "value": "2021-11"}
          ],
          "description": {
            "title": "Microbe sample from Triticum aestivum",
            "organism": {
              "organism_name": "Pantoea agglomerans",
              "tax_id": 549
            }
          },
          "last_updated": "2022-05-20T09:20:33.281",
          "package": "Microbe.1.0",
          "publication_date": "2022-05-19T00:00:00.000",
          "strain": "LMAE-2",
          "submission_date": "2022-05-18T14:30:15.553",
          "sample_ids": [
            {"db": "SRA", "value": "SRS12900000"},
            {"label": "Sample name", "value": "LMAE-2"}
          ]
        }
      },
      "assembly_stats": {
        "contig_l50": 1,
        "contig_n50": 4013971,
        "gc_count": "2613447",
        "gc_percent": 54.5,
        "number_of_contigs": 4,
        "number_of_scaffolds": 4,
        "scaffold_l50": 1,
        "scaffold_n50": 4013971,
        "total_number_of_chromosomes": 1,
        "total_sequence_length": "4836045",
        "total_ungapped_length": "4836045"
      },
      "average_nucleotide_identity": {
        "best_ani_match": {
          "ani": 98.91,
          "assembly": "GCA_000743785.1"
        },
        "match_status": "species_match",
        "submitted_organism": "Pantoea agglomerans",
        "taxonomy_check_status": "OK"
      },
      "checkm_info": {
        "checkm_marker_set": "Pantoea agglomerans",
        "checkm_version": "v1.2.2",
        "completeness": 99.34,
        "completeness_percentile": 87.21,
        "contamination": 0.81
      }
    }
  ],
  "total_count": 1
}`

func TestSummaryMapsReport(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fn: func(context.Context) ([]byte, error) {
		return []byte(sampleReport), nil
	}}
	c := datasets.NewClient(runner)

	rec, err := c.Summary(context.Background(), "GCF_023516215.1")
	require.NoError(t, err)

	require.Equal(t, []string{"datasets", "summary", "genome", "accession", "GCF_023516215.1"}, runner.args[0])

	require.Equal(t, "GCF_023516215.1", rec.Accession)
	require.Equal(t, "Best-placed reference protein set; GeneMarkS-2+", rec.AnnotationMethod)
	require.Equal(t, "NCBI RefSeq", rec.AnnotationProvider)

	require.Equal(t, int64(4220), *rec.GenesProteinCoding)
	require.Equal(t, int64(4421), *rec.GenesTotal)
	require.Equal(t, 54.5, *rec.GCPercent)
	require.Equal(t, 99.34, *rec.Completeness)
	require.Equal(t, 0.81, *rec.Contamination)

	require.Equal(t, "wheat rhizosphere", rec.IsolationSource)
	require.Equal(t, "Triticum aestivum", rec.Host)
	require.Equal(t, "Chile: Valparaiso", rec.GeoLocName)
	require.Equal(t, "", rec.EnvironmentalMedium, "absent biosample attribute stays empty")

	require.Equal(t, "Pantoea agglomerans", rec.BioSampleOrganism)
	require.Equal(t, int64(549), *rec.BioSampleTaxID)
	require.Equal(t, "SRA:SRS12900000;Sample name:LMAE-2", rec.SampleIDs)

	require.Equal(t, int64(4836045), *rec.TotalSequenceLength, "string-encoded lengths must parse")
	require.Equal(t, int64(2613447), *rec.GCCount)
	require.Equal(t, int64(4), *rec.ContigCount)

	require.Equal(t, 98.91, *rec.ANIBest)
	require.Equal(t, "GCA_000743785.1", rec.ANIBestAssembly)
	require.Equal(t, "SOURCE_DATABASE_REFSEQ", rec.SourceDatabase)
}

func TestSummaryFallsBackToAnnotationName(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fn: func(context.Context) ([]byte, error) {
		return []byte(`{"reports":[{"accession":"GCF_1","annotation_info":{"name":"From GenBank"}}]}`), nil
	}}

	rec, err := datasets.NewClient(runner).Summary(context.Background(), "GCF_1")
	require.NoError(t, err)
	require.Equal(t, "From GenBank", rec.AnnotationMethod)
	require.Nil(t, rec.GenesTotal)
}

func TestSummaryNotFound(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fn: func(context.Context) ([]byte, error) {
		return []byte(`{"total_count": 0}`), nil
	}}

	_, err := datasets.NewClient(runner).Summary(context.Background(), "GCF_MISSING")
	var nf *datasets.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "GCF_MISSING", nf.Accession)
	require.Equal(t, "NotFound", datasets.FailureReason(err))
}

func TestSummaryMalformedResponse(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fn: func(context.Context) ([]byte, error) {
		return []byte("Error: connection reset"), nil
	}}

	_, err := datasets.NewClient(runner).Summary(context.Background(), "GCF_1")
	var mr *datasets.MalformedResponseError
	require.ErrorAs(t, err, &mr)
	require.Equal(t, "MalformedResponse", datasets.FailureReason(err))
}

func TestSummaryToolInvocationError(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fn: func(context.Context) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}}

	_, err := datasets.NewClient(runner).Summary(context.Background(), "GCF_1")
	var ti *datasets.ToolInvocationError
	require.ErrorAs(t, err, &ti)
	require.Equal(t, "ToolInvocationError", datasets.FailureReason(err))
}

func TestSummaryTimeout(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fn: func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := datasets.NewClient(runner).Summary(ctx, "GCF_1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, "Timeout", datasets.FailureReason(err))
}
