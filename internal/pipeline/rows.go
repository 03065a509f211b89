package pipeline

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/creyno/genomemeta/internal/datasets"
	"github.com/creyno/genomemeta/internal/entrez"
)

// FailureEntry records one item's non-fatal processing failure. Entries are
// write-once: created at the failure site and carried unchanged into the log.
type FailureEntry struct {
	Accession string
	Stage     string
	Reason    string
}

// MergedRow joins one primary record with its optional enrichment record.
// A nil Enrichment renders as explicit empty cells, never as missing columns.
type MergedRow struct {
	Primary    entrez.PrimaryRecord
	Enrichment *datasets.Record
}

// RunOutput is the final ordered table plus the failure log for one run.
type RunOutput struct {
	Rows     []MergedRow
	Failures []FailureEntry
}

var primaryColumns = []string{
	"ID",
	"AssemblyAccession",
	"AssemblyName",
	"Organism",
	"SpeciesName",
	"SpeciesTaxid",
	"AssemblyType",
	"AssemblyStatus",
	"AssemblyStatusSort",
	"Coverage",
	"ReleaseLevel",
	"ReleaseType",
	"SeqReleaseDate",
	"SubmitterOrganization",
	"BioSampleAccn",
	"BioProject_Accn",
	"FtpPath_GenBank",
	"FtpPath_RefSeq",
	"FtpPath_Assembly_rpt",
	"FtpPath_Stats_rpt",
	"Synonym_Genbank",
	"Synonym_RefSeq",
	"AssemblyLevel",
	"TaxonomyCheckStatus",
	"RepresentativeStatus",
	"RefSeq_category",
	"LastMajorReleaseAccession",
	"ChainId",
	"RsUid",
	"GbUid",
	"Primary",
	"PartialGenomeRepresentation",
	"PropertyList",
	"BuscoTotalCount",
	"contig_count",
	"contig_l50",
	"contig_n50",
	"scaffold_count",
	"scaffold_l50",
	"scaffold_n50",
	"replicon_count",
	"chromosome_count",
	"total_length",
	"ungapped_length",
	"RetrievedAt",
}

var enrichmentColumns = []string{
	"annotation_method",
	"annotation_provider",
	"annotation_release_date",
	"pipeline",
	"non_coding",
	"protein_coding",
	"pseudogene",
	"total_genes",
	"assembly_method",
	"sequencing_tech",
	"gc_percent",
	"completeness",
	"isolation_source",
	"host",
	"geo_loc_name",
	"collected_by",
	"collection_date",
	"environmental_medium",
	"ds_assembly_level",
	"ds_assembly_name",
	"ds_assembly_status",
	"ds_assembly_type",
	"ds_bioproject_accession",
	"ds_refseq_category",
	"ds_assembly_release_date",
	"ds_assembly_submitter",
	"ds_biosample_accession",
	"ds_biosample_description",
	"ds_biosample_organism_name",
	"ds_biosample_tax_id",
	"ds_biosample_last_updated",
	"ds_biosample_package",
	"ds_biosample_publication_date",
	"ds_biosample_strain",
	"ds_biosample_submission_date",
	"ds_sample_ids",
	"ds_contig_l50",
	"ds_contig_n50",
	"ds_gc_count",
	"ds_number_of_contigs",
	"ds_number_of_scaffolds",
	"ds_scaffold_l50",
	"ds_scaffold_n50",
	"ds_total_number_of_chromosomes",
	"ds_total_sequence_length",
	"ds_total_ungapped_length",
	"ds_ani_best",
	"ds_ani_best_assembly",
	"ds_match_status",
	"ds_submitted_organism",
	"ds_taxonomy_check_status",
	"ds_checkm_marker_set",
	"ds_checkm_version",
	"ds_contamination",
	"ds_completeness_percentile",
	"ds_paired_accession",
	"ds_source_database",
}

// Header returns the stable rectangular column contract: primary columns
// first, enrichment columns after. Every row carries every column.
func Header() []string {
	h := make([]string, 0, len(primaryColumns)+len(enrichmentColumns))
	h = append(h, primaryColumns...)
	h = append(h, enrichmentColumns...)
	return h
}

// Values renders the row in Header() order. Enrichment cells are explicit
// empties when no enrichment record exists.
func (r MergedRow) Values() []string {
	vals := primaryValues(r.Primary)
	if r.Enrichment == nil {
		return append(vals, make([]string, len(enrichmentColumns))...)
	}
	return append(vals, enrichmentValues(r.Enrichment)...)
}

func primaryValues(p entrez.PrimaryRecord) []string {
	return []string{
		p.UID,
		p.Accession,
		p.AssemblyName,
		p.Organism,
		p.SpeciesName,
		p.SpeciesTaxID,
		p.AssemblyType,
		p.AssemblyStatus,
		p.AssemblyStatusSort,
		ffloat(p.Coverage),
		p.ReleaseLevel,
		p.ReleaseType,
		p.SeqReleaseDate,
		p.Submitter,
		p.BioSample,
		p.BioProject,
		p.FTPGenBank,
		p.FTPRefSeq,
		p.FTPAssemblyReport,
		p.FTPStatsReport,
		p.SynonymGenBank,
		p.SynonymRefSeq,
		p.AssemblyLevel,
		p.TaxonomyCheckStatus,
		p.RepresentativeStatus,
		p.RefSeqCategory,
		p.LastMajorReleaseAccession,
		p.ChainID,
		p.RsUID,
		p.GbUID,
		p.PrimaryUID,
		p.PartialGenomeRepresentation,
		strings.Join(p.Properties, ";"),
		fint(p.BuscoTotalCount),
		fint(p.ContigCount),
		fint(p.ContigL50),
		fint(p.ContigN50),
		fint(p.ScaffoldCount),
		fint(p.ScaffoldL50),
		fint(p.ScaffoldN50),
		fint(p.RepliconCount),
		fint(p.ChromosomeCount),
		fint(p.TotalLength),
		fint(p.UngappedLength),
		p.Retrieved.UTC().Format(time.RFC3339),
	}
}

func enrichmentValues(e *datasets.Record) []string {
	return []string{
		e.AnnotationMethod,
		e.AnnotationProvider,
		e.AnnotationReleaseDate,
		e.AnnotationPipeline,
		fint(e.GenesNonCoding),
		fint(e.GenesProteinCoding),
		fint(e.GenesPseudo),
		fint(e.GenesTotal),
		e.AssemblyMethod,
		e.SequencingTech,
		ffloat(e.GCPercent),
		ffloat(e.Completeness),
		e.IsolationSource,
		e.Host,
		e.GeoLocName,
		e.CollectedBy,
		e.CollectionDate,
		e.EnvironmentalMedium,
		e.AssemblyLevel,
		e.AssemblyName,
		e.AssemblyStatus,
		e.AssemblyType,
		e.BioProject,
		e.RefSeqCategory,
		e.AssemblyReleaseDate,
		e.Submitter,
		e.BioSampleAccession,
		e.BioSampleDescription,
		e.BioSampleOrganism,
		fint(e.BioSampleTaxID),
		e.BioSampleLastUpdated,
		e.BioSamplePackage,
		e.BioSamplePublicationDate,
		e.BioSampleStrain,
		e.BioSampleSubmissionDate,
		e.SampleIDs,
		fint(e.ContigL50),
		fint(e.ContigN50),
		fint(e.GCCount),
		fint(e.ContigCount),
		fint(e.ScaffoldCount),
		fint(e.ScaffoldL50),
		fint(e.ScaffoldN50),
		fint(e.ChromosomeCount),
		fint(e.TotalSequenceLength),
		fint(e.TotalUngappedLength),
		ffloat(e.ANIBest),
		e.ANIBestAssembly,
		e.ANIMatchStatus,
		e.ANISubmittedOrganism,
		e.ANITaxonomyCheckStatus,
		e.CheckMMarkerSet,
		e.CheckMVersion,
		ffloat(e.Contamination),
		ffloat(e.CompletenessPercentile),
		e.PairedAccession,
		e.SourceDatabase,
	}
}

// Merge joins primary records with their enrichment outcomes into the final
// ordered output. Rows are sorted by accession ascending so two runs over
// the same upstream data produce identical tables regardless of completion
// order. Outcomes without a matching primary record should not occur; they
// are discarded with a logged inconsistency.
func Merge(primaries []entrez.PrimaryRecord, outcomes Outcomes, parseFailures []FailureEntry, logger *zap.Logger) RunOutput {
	rows := make([]MergedRow, 0, len(primaries))
	failures := append([]FailureEntry(nil), parseFailures...)

	known := make(map[string]bool, len(primaries))
	for _, p := range primaries {
		known[p.Accession] = true
		row := MergedRow{Primary: p}
		if out, ok := outcomes[p.Accession]; ok {
			if out.Err != nil {
				failures = append(failures, FailureEntry{
					Accession: p.Accession,
					Stage:     "enrich",
					Reason:    failureReason(out.Err),
				})
			} else {
				row.Enrichment = out.Record
			}
		}
		rows = append(rows, row)
	}

	var orphans []string
	for acc := range outcomes {
		if !known[acc] {
			orphans = append(orphans, acc)
		}
	}
	sort.Strings(orphans)
	for _, acc := range orphans {
		logger.Warn("discarding enrichment outcome with no primary record", zap.String("accession", acc))
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Primary.Accession < rows[j].Primary.Accession
	})
	sort.SliceStable(failures, func(i, j int) bool {
		if failures[i].Accession != failures[j].Accession {
			return failures[i].Accession < failures[j].Accession
		}
		return failures[i].Stage < failures[j].Stage
	})

	return RunOutput{Rows: rows, Failures: failures}
}

func failureReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrInterrupted) {
		return "interrupted"
	}
	return datasets.FailureReason(err)
}

func fint(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func ffloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
