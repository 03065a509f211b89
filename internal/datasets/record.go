package datasets

import (
	"bytes"
	"strconv"
	"strings"
)

// Record is the enrichment metadata for one accession. Numeric fields are nil
// when the upstream report omits them; absence never fails the call.
type Record struct {
	Accession string

	AnnotationMethod      string
	AnnotationProvider    string
	AnnotationReleaseDate string
	AnnotationPipeline    string

	GenesNonCoding     *int64
	GenesProteinCoding *int64
	GenesPseudo        *int64
	GenesTotal         *int64

	AssemblyMethod string
	SequencingTech string
	GCPercent      *float64

	Completeness           *float64
	Contamination          *float64
	CompletenessPercentile *float64
	CheckMMarkerSet        string
	CheckMVersion          string

	IsolationSource     string
	Host                string
	GeoLocName          string
	CollectedBy         string
	CollectionDate      string
	EnvironmentalMedium string

	AssemblyLevel       string
	AssemblyName        string
	AssemblyStatus      string
	AssemblyType        string
	BioProject          string
	RefSeqCategory      string
	AssemblyReleaseDate string
	Submitter           string

	BioSampleAccession       string
	BioSampleDescription     string
	BioSampleOrganism        string
	BioSampleTaxID           *int64
	BioSampleLastUpdated     string
	BioSamplePackage         string
	BioSamplePublicationDate string
	BioSampleStrain          string
	BioSampleSubmissionDate  string
	SampleIDs                string

	ContigL50           *int64
	ContigN50           *int64
	GCCount             *int64
	ContigCount         *int64
	ScaffoldCount       *int64
	ScaffoldL50         *int64
	ScaffoldN50         *int64
	ChromosomeCount     *int64
	TotalSequenceLength *int64
	TotalUngappedLength *int64

	ANIBest                *float64
	ANIBestAssembly        string
	ANIMatchStatus         string
	ANISubmittedOrganism   string
	ANITaxonomyCheckStatus string

	PairedAccession string
	SourceDatabase  string
}

// flexInt tolerates NCBI's habit of emitting counts as either JSON numbers or
// numeric strings; an unparseable value decodes to nil rather than failing.
type flexInt struct {
	v *int64
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(bytes.TrimSpace(b)), `"`))
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	f.v = &v
	return nil
}

type flexFloat struct {
	v *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(bytes.TrimSpace(b)), `"`))
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.v = &v
	return nil
}

type response struct {
	Reports []report `json:"reports"`
}

type report struct {
	Accession       string `json:"accession"`
	PairedAccession string `json:"paired_accession"`
	SourceDatabase  string `json:"source_database"`

	AnnotationInfo struct {
		Method      string `json:"method"`
		Name        string `json:"name"`
		Provider    string `json:"provider"`
		ReleaseDate string `json:"release_date"`
		Pipeline    string `json:"pipeline"`
		Stats       struct {
			GeneCounts struct {
				NonCoding     flexInt `json:"non_coding"`
				ProteinCoding flexInt `json:"protein_coding"`
				Pseudogene    flexInt `json:"pseudogene"`
				Total         flexInt `json:"total"`
			} `json:"gene_counts"`
		} `json:"stats"`
	} `json:"annotation_info"`

	AssemblyInfo struct {
		AssemblyLevel       string `json:"assembly_level"`
		AssemblyMethod      string `json:"assembly_method"`
		AssemblyName        string `json:"assembly_name"`
		AssemblyStatus      string `json:"assembly_status"`
		AssemblyType        string `json:"assembly_type"`
		BioprojectAccession string `json:"bioproject_accession"`
		RefseqCategory      string `json:"refseq_category"`
		ReleaseDate         string `json:"release_date"`
		SequencingTech      string `json:"sequencing_tech"`
		Submitter           string `json:"submitter"`
		Biosample           struct {
			Accession  string `json:"accession"`
			Attributes []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"attributes"`
			Description struct {
				Title    string `json:"title"`
				Organism struct {
					OrganismName string  `json:"organism_name"`
					TaxID        flexInt `json:"tax_id"`
				} `json:"organism"`
			} `json:"description"`
			LastUpdated     string `json:"last_updated"`
			Package         string `json:"package"`
			PublicationDate string `json:"publication_date"`
			Strain          string `json:"strain"`
			SubmissionDate  string `json:"submission_date"`
			SampleIDs       []struct {
				DB    string `json:"db"`
				Label string `json:"label"`
				Value string `json:"value"`
			} `json:"sample_ids"`
		} `json:"biosample"`
	} `json:"assembly_info"`

	AssemblyStats struct {
		ContigL50                 flexInt   `json:"contig_l50"`
		ContigN50                 flexInt   `json:"contig_n50"`
		GCCount                   flexInt   `json:"gc_count"`
		GCPercent                 flexFloat `json:"gc_percent"`
		NumberOfContigs           flexInt   `json:"number_of_contigs"`
		NumberOfScaffolds         flexInt   `json:"number_of_scaffolds"`
		ScaffoldL50               flexInt   `json:"scaffold_l50"`
		ScaffoldN50               flexInt   `json:"scaffold_n50"`
		TotalNumberOfChromosomes  flexInt   `json:"total_number_of_chromosomes"`
		TotalSequenceLength       flexInt   `json:"total_sequence_length"`
		TotalUngappedLength       flexInt   `json:"total_ungapped_length"`
	} `json:"assembly_stats"`

	AverageNucleotideIdentity struct {
		BestANIMatch struct {
			ANI      flexFloat `json:"ani"`
			Assembly string    `json:"assembly"`
		} `json:"best_ani_match"`
		MatchStatus         string `json:"match_status"`
		SubmittedOrganism   string `json:"submitted_organism"`
		TaxonomyCheckStatus string `json:"taxonomy_check_status"`
	} `json:"average_nucleotide_identity"`

	CheckmInfo struct {
		MarkerSet              string    `json:"checkm_marker_set"`
		Version                string    `json:"checkm_version"`
		Completeness           flexFloat `json:"completeness"`
		Contamination          flexFloat `json:"contamination"`
		CompletenessPercentile flexFloat `json:"completeness_percentile"`
	} `json:"checkm_info"`
}

func mapReport(accession string, r report) *Record {
	attrs := make(map[string]string, len(r.AssemblyInfo.Biosample.Attributes))
	for _, a := range r.AssemblyInfo.Biosample.Attributes {
		attrs[a.Name] = a.Value
	}

	method := r.AnnotationInfo.Method
	if method == "" {
		method = r.AnnotationInfo.Name
	}

	var sampleIDs []string
	for _, id := range r.AssemblyInfo.Biosample.SampleIDs {
		label := id.Label
		if label == "" {
			label = id.DB
		}
		sampleIDs = append(sampleIDs, label+":"+id.Value)
	}

	return &Record{
		Accession: accession,

		AnnotationMethod:      method,
		AnnotationProvider:    r.AnnotationInfo.Provider,
		AnnotationReleaseDate: r.AnnotationInfo.ReleaseDate,
		AnnotationPipeline:    r.AnnotationInfo.Pipeline,

		GenesNonCoding:     r.AnnotationInfo.Stats.GeneCounts.NonCoding.v,
		GenesProteinCoding: r.AnnotationInfo.Stats.GeneCounts.ProteinCoding.v,
		GenesPseudo:        r.AnnotationInfo.Stats.GeneCounts.Pseudogene.v,
		GenesTotal:         r.AnnotationInfo.Stats.GeneCounts.Total.v,

		AssemblyMethod: r.AssemblyInfo.AssemblyMethod,
		SequencingTech: r.AssemblyInfo.SequencingTech,
		GCPercent:      r.AssemblyStats.GCPercent.v,

		Completeness:           r.CheckmInfo.Completeness.v,
		Contamination:          r.CheckmInfo.Contamination.v,
		CompletenessPercentile: r.CheckmInfo.CompletenessPercentile.v,
		CheckMMarkerSet:        r.CheckmInfo.MarkerSet,
		CheckMVersion:          r.CheckmInfo.Version,

		IsolationSource:     attrs["isolation_source"],
		Host:                attrs["host"],
		GeoLocName:          attrs["geo_loc_name"],
		CollectedBy:         attrs["collected_by"],
		CollectionDate:      attrs["collection_date"],
		EnvironmentalMedium: attrs["environmental_medium"],

		AssemblyLevel:       r.AssemblyInfo.AssemblyLevel,
		AssemblyName:        r.AssemblyInfo.AssemblyName,
		AssemblyStatus:      r.AssemblyInfo.AssemblyStatus,
		AssemblyType:        r.AssemblyInfo.AssemblyType,
		BioProject:          r.AssemblyInfo.BioprojectAccession,
		RefSeqCategory:      r.AssemblyInfo.RefseqCategory,
		AssemblyReleaseDate: r.AssemblyInfo.ReleaseDate,
		Submitter:           r.AssemblyInfo.Submitter,

		BioSampleAccession:       r.AssemblyInfo.Biosample.Accession,
		BioSampleDescription:     r.AssemblyInfo.Biosample.Description.Title,
		BioSampleOrganism:        r.AssemblyInfo.Biosample.Description.Organism.OrganismName,
		BioSampleTaxID:           r.AssemblyInfo.Biosample.Description.Organism.TaxID.v,
		BioSampleLastUpdated:     r.AssemblyInfo.Biosample.LastUpdated,
		BioSamplePackage:         r.AssemblyInfo.Biosample.Package,
		BioSamplePublicationDate: r.AssemblyInfo.Biosample.PublicationDate,
		BioSampleStrain:          r.AssemblyInfo.Biosample.Strain,
		BioSampleSubmissionDate:  r.AssemblyInfo.Biosample.SubmissionDate,
		SampleIDs:                strings.Join(sampleIDs, ";"),

		ContigL50:           r.AssemblyStats.ContigL50.v,
		ContigN50:           r.AssemblyStats.ContigN50.v,
		GCCount:             r.AssemblyStats.GCCount.v,
		ContigCount:         r.AssemblyStats.NumberOfContigs.v,
		ScaffoldCount:       r.AssemblyStats.NumberOfScaffolds.v,
		ScaffoldL50:         r.AssemblyStats.ScaffoldL50.v,
		ScaffoldN50:         r.AssemblyStats.ScaffoldN50.v,
		ChromosomeCount:     r.AssemblyStats.TotalNumberOfChromosomes.v,
		TotalSequenceLength: r.AssemblyStats.TotalSequenceLength.v,
		TotalUngappedLength: r.AssemblyStats.TotalUngappedLength.v,

		ANIBest:                r.AverageNucleotideIdentity.BestANIMatch.ANI.v,
		ANIBestAssembly:        r.AverageNucleotideIdentity.BestANIMatch.Assembly,
		ANIMatchStatus:         r.AverageNucleotideIdentity.MatchStatus,
		ANISubmittedOrganism:   r.AverageNucleotideIdentity.SubmittedOrganism,
		ANITaxonomyCheckStatus: r.AverageNucleotideIdentity.TaxonomyCheckStatus,

		PairedAccession: r.PairedAccession,
		SourceDatabase:  r.SourceDatabase,
	}
}
